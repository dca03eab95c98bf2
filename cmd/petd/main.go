// Command petd runs the desktop pet simulation daemon and its CLI.
package main

import "github.com/talgya/desk-pet/cmd/petd/root"

func main() {
	root.Execute()
}
