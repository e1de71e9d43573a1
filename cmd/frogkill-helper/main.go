//go:build linux

package main

import (
	"os"

	"github.com/ja7ad/frogkill/pkg/helper"
)

func main() {
	os.Exit(helper.Main(os.Args[1:], helper.New(os.Stderr), os.Stdout, os.Stderr))
}
