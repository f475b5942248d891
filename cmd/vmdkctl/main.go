// Command vmdkctl inspects and creates VMDK disk images: create lays out
// a fresh disk, info prints its descriptor fields, and cat streams its
// logical content to a file or stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/ownership"
	"github.com/vmdkcore/vmdkcore/internal/vlog"
	"github.com/vmdkcore/vmdkcore/vmdk"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "info":
		runInfo(os.Args[2:])
	case "cat":
		runCat(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: vmdkctl <create|info|cat> [flags]")
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	path := fs.String("path", "", "Descriptor path to create")
	capacity := fs.Uint64("capacity", 0, "Capacity in bytes")
	createType := fs.String("type", string(descriptor.MonolithicSparse), "Create type")
	verbose := fs.Bool("v", false, "Log the content-ID rewrite")
	fs.Parse(args)

	if *path == "" || *capacity == 0 {
		fmt.Println("Error: -path and -capacity are required")
		fs.Usage()
		os.Exit(1)
	}

	log := vlog.New(*verbose, os.Stderr)

	d, err := vmdk.Initialize(*path, *capacity, descriptor.CreateType(*createType), log)
	if err != nil {
		fmt.Printf("create failed: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	fmt.Printf("created %s: %d bytes, content_id=%08x\n", *path, d.Capacity(), d.ContentID())
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	path := fs.String("path", "", "Descriptor path to inspect")
	fs.Parse(args)

	if *path == "" {
		fmt.Println("Error: -path is required")
		fs.Usage()
		os.Exit(1)
	}

	d, err := vmdk.Open(*path, descriptor.Read, vlog.Discard)
	if err != nil {
		fmt.Printf("open failed: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	geom := d.Geometry()
	fmt.Printf("capacity:     %d bytes\n", d.Capacity())
	fmt.Printf("sparse:       %v\n", d.IsSparse())
	fmt.Printf("needs parent: %v\n", d.NeedsParent())
	if d.NeedsParent() {
		fmt.Printf("parent:       %s\n", d.ParentLocation())
	}
	fmt.Printf("content_id:   %08x\n", d.ContentID())
	fmt.Printf("geometry:     %d/%d/%d (C/H/S)\n", geom.Cylinders, geom.Heads, geom.Sectors)
}

func runCat(args []string) {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	path := fs.String("path", "", "Descriptor path to read")
	out := fs.String("out", "", "Output file path (default stdout)")
	fs.Parse(args)

	if *path == "" {
		fmt.Println("Error: -path is required")
		fs.Usage()
		os.Exit(1)
	}

	d, err := vmdk.Open(*path, descriptor.Read, vlog.Discard)
	if err != nil {
		fmt.Printf("open failed: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	if d.NeedsParent() {
		fmt.Printf("cat failed: %s is a differencing disk; this command does not resolve parent chains\n", *path)
		os.Exit(1)
	}

	content, err := d.OpenContent(ownership.None)
	if err != nil {
		fmt.Printf("open-content failed: %v\n", err)
		os.Exit(1)
	}
	defer content.Close()

	dst := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Printf("failed to create %q: %v\n", *out, err)
			os.Exit(1)
		}
		defer f.Close()
		dst = f
	}

	written, err := copyContent(dst, content)
	if err != nil {
		fmt.Printf("cat failed: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		fmt.Fprintf(os.Stderr, "wrote %d bytes\n", written)
	}
}
