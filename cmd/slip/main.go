// Command slip is a read-expand-print loop for the Slip front end. Given
// file arguments it expands each file's forms and prints them; with no
// arguments it reads forms interactively, continuing the prompt while a
// form is left open.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/slip-lang/slip"
)

func main() {
	c := slip.NewCompiler()
	c.Opts = slip.Options{SkipShebang: true}
	if len(os.Args) > 1 {
		for _, name := range os.Args[1:] {
			if err := expandFile(c, name); err != nil {
				fmt.Fprintln(os.Stderr, "slip:", err)
				os.Exit(1)
			}
		}
		return
	}
	repl(c)
}

func expandFile(c *slip.Compiler, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	r := slip.NewReader(f, c.NS, c.Opts)
	forms, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, m := range forms {
		out, err := c.Macroexpand(m)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Println(out)
	}
	return nil
}

func repl(c *slip.Compiler) {
	stdin := bufio.NewScanner(os.Stdin)
	pending := ""
	for {
		if pending == "" {
			fmt.Print("slip> ")
		} else {
			fmt.Print(".... ")
		}
		if !stdin.Scan() {
			break
		}
		pending += stdin.Text() + "\n"
		forms, err := slip.ReadString(pending, c.NS, slip.Options{})
		if err != nil {
			if slip.IsPrematureEOF(err) {
				// An open form; keep the text and prompt for the rest.
				continue
			}
			fmt.Println("error:", err)
			pending = ""
			continue
		}
		pending = ""
		for _, m := range forms {
			out, err := c.Macroexpand(m)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			fmt.Println(out)
		}
	}
	if err := stdin.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "slip:", err)
	}
}
