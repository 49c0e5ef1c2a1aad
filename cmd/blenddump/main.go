// Command blenddump inspects a .blend file's SDNA-described records
// from the command line, without needing Blender installed.
package main

import (
	"fmt"
	"os"

	"github.com/blendreader/blendfile"
)

const usage = `blenddump - .blend SDNA inspector

Usage:
  blenddump structures <file.blend>                 List every struct type in the file's SDNA
  blenddump tree <file.blend> <StructName>           Render a struct's field tree
  blenddump list <file.blend> <StructName>           Count the blocks matching a struct type
  blenddump find <file.blend> <StructName> <Name>    Find a named record and print its fields

Examples:
  blenddump structures scene.blend
  blenddump tree scene.blend Object
  blenddump find scene.blend Object Cube
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "structures":
		err = runStructures(args)
	case "tree":
		err = runTree(args)
	case "list":
		err = runList(args)
	case "find":
		err = runFind(args)
	case "help":
		fmt.Print(usage)
	default:
		fmt.Printf("Error: unknown command %q\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func openFile(path string) (*blendfile.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	bf, err := blendfile.Open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return bf, nil
}

func runStructures(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: blenddump structures <file.blend>")
	}
	bf, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer bf.Close()

	names, err := bf.ListStructures()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runTree(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: blenddump tree <file.blend> <StructName>")
	}
	bf, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer bf.Close()

	tree, err := bf.Tree(args[1], true, 999)
	if err != nil {
		return err
	}
	fmt.Print(tree)
	return nil
}

func runList(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: blenddump list <file.blend> <StructName>")
	}
	bf, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer bf.Close()

	factory, err := bf.List(args[1])
	if err != nil {
		return err
	}
	count, err := factory.Len()
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}

func runFind(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: blenddump find <file.blend> <StructName> <Name>")
	}
	bf, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer bf.Close()

	factory, err := bf.List(args[1])
	if err != nil {
		return err
	}
	rec, err := factory.FindByName(args[2])
	if err != nil {
		return err
	}
	for _, field := range rec.Signature() {
		fmt.Printf("%s %s (size=%d offset=%d pointer=%v)\n", field.TypeName, field.BaseName, field.Size, field.Offset, field.IsPointer)
	}
	return nil
}
