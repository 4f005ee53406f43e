// Command mkfs creates a fresh filesystem image, the equivalent of the
// teacher's cmd/mkfs but built on fs.Format instead of hand-assembling
// a Minix superblock: this filesystem's layout (block size, block
// count, inode table size) is fixed, so there is nothing left to size
// on the commandline beyond -query.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/fs"
)

func ferr(f string, s ...interface{}) {
	fmt.Fprintf(os.Stderr, f, s...)
}

func main() {
	var filename string
	var query bool
	var force bool

	flag.StringVar(&filename, "file", "", "the image filename")
	flag.BoolVar(&query, "query", false, "print the layout of an existing image instead of creating one")
	flag.BoolVar(&force, "force", false, "overwrite an existing image file")
	flag.Parse()

	if filename == "" {
		ferr("must specify -file\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if query {
		e, err := fs.Mount(filename)
		if err != nil {
			ferr("error mounting %q: %s\n", filename, err)
			os.Exit(1)
		}
		defer e.Shutdown()
		printLayout()
		findings := e.Check()
		if len(findings) == 0 {
			fmt.Println("filesystem is clean")
		} else {
			for _, f := range findings {
				fmt.Printf("fsck: %s\n", f)
			}
		}
		return
	}

	if !force {
		if _, err := os.Stat(filename); err == nil {
			ferr("%q already exists, pass -force to overwrite\n", filename)
			os.Exit(1)
		}
	}

	e, err := fs.Format(filename)
	if err != nil {
		ferr("error formatting %q: %s\n", filename, err)
		os.Exit(1)
	}
	defer e.Shutdown()
	printLayout()
	fmt.Printf("created %s\n", filename)
}

func printLayout() {
	fmt.Printf("BlockSize: %d\n", common.BlockSize)
	fmt.Printf("NumBlocks: %d\n", common.NumBlocks)
	fmt.Printf("TotalInodes: %d\n", common.TotalInodes)
	fmt.Printf("InodeTableStart: %d\n", common.InodeTableStart)
	fmt.Printf("DataAreaStart: %d\n", common.DataAreaStart)
}
