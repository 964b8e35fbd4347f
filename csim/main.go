// Command csim replays a memory trace against a set-associative cache and
// reports the number of hits, misses, and evictions.
package main

import "github.com/sarchlab/csim/csim/cmd"

func main() {
	cmd.Execute()
}
