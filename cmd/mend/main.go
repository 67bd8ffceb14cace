package main

import (
	"github.com/vietddude/mend/internal/cli"
)

func main() {
	cli.Execute()
}
