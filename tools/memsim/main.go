// Command memsim replays allocation scripts against the kernel memory
// managers on a development host.
package main

import "meerkatos/tools/memsim/cmd"

func main() {
	cmd.Execute()
}
