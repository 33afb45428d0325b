package main

import "github.com/openresearchdata/zenodo-relay/cmd/zrworkerd/cmd"

func main() {
	cmd.Execute()
}
