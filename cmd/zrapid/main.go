package main

import "github.com/openresearchdata/zenodo-relay/cmd/zrapid/cmd"

func main() {
	cmd.Execute()
}
