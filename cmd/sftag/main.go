// This command line tool sets the descriptive strings of sound banks in a
// safe way. Tagged copies are stored in an sftag folder next to the
// original files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cwbudde/sfont"
)

var (
	flagFileToTag  = flag.String("file", "", "Path to the bank to tag")
	flagDirToTag   = flag.String("dir", "", "Directory containing all the banks to tag")
	flagNameRegexp = flag.String("regexp", "", `submatch regexp to use to set the name dynamically by extracting it from the filename (ignoring the extension), example: 'my_banks_\d\d_(.*)'`)
	//
	flagName      = flag.String("name", "", "Bank name")
	flagEngineer  = flag.String("engineer", "", "Bank's sound designers")
	flagProduct   = flag.String("product", "", "Product the bank is intended for")
	flagComment   = flag.String("comment", "", "Bank comments")
	flagCopyright = flag.String("copyright", "", "Bank copyright")
	flagDate      = flag.String("date", "", "Bank creation date")
)

func main() {
	flag.Parse()

	if *flagFileToTag == "" && *flagDirToTag == "" {
		fmt.Println("You need to pass -file or -dir to indicate what file or folder content to tag.")
		os.Exit(1)
	}

	if *flagFileToTag != "" {
		err := tagFile(*flagFileToTag)
		if err != nil {
			fmt.Printf("Something went wrong when tagging %s - error: %v\n", *flagFileToTag, err)
			os.Exit(1)
		}
	}

	if *flagDirToTag != "" {
		if err := tagDir(*flagDirToTag); err != nil {
			fmt.Printf("Something went wrong when tagging %s - error: %v\n", *flagDirToTag, err)
			os.Exit(1)
		}
	}
}

func isBank(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".sf2" || ext == ".sf3"
}

func tagDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s - %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !isBank(e.Name()) {
			continue
		}

		filePath := filepath.Join(dir, e.Name())

		if err := tagFile(filePath); err != nil {
			fmt.Printf("Something went wrong tagging %s - %v\n", filePath, err)
		}
	}

	return nil
}

func tagFile(path string) error {
	b, err := sfont.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s - %w", path, err)
	}

	applyTags(path, &b.Info)

	outputDir := filepath.Join(filepath.Dir(path), "sftag")
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	outPath := filepath.Join(outputDir, filepath.Base(path))

	// Samples are copied unchanged whatever their encoding.
	if err := sfont.WriteFile(outPath, b); err != nil {
		return fmt.Errorf("failed to write %s - %w", outPath, err)
	}

	fmt.Println("Tagged file available at", outPath)

	return nil
}

func applyTags(path string, info *sfont.Info) {
	if *flagNameRegexp != "" {
		filename := filepath.Base(path)
		filename = filename[:len(filename)-len(filepath.Ext(path))]
		re := regexp.MustCompile(*flagNameRegexp)

		matches := re.FindStringSubmatch(filename)
		if len(matches) > 1 {
			info.Name = matches[1]
		} else {
			fmt.Printf("No matches for name regexp %s in %s\n", *flagNameRegexp, filename)
		}
	}

	fields := []struct {
		value string
		dst   *string
	}{
		{*flagName, &info.Name},
		{*flagEngineer, &info.Engineer},
		{*flagProduct, &info.Product},
		{*flagComment, &info.Comment},
		{*flagCopyright, &info.Copyright},
		{*flagDate, &info.CreationDate},
	}

	for _, f := range fields {
		if f.value != "" {
			*f.dst = f.value
		}
	}
}
