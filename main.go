package main

import "github.com/maastricht-university/dream-pipeline/cmd"

func main() {
	cmd.Execute()
}
