package main

import "github.com/petrarca/composition-scanner/internal/cmd"

func main() {
	cmd.Execute()
}
