// Package main provides the dfilter command-line tool. dfilter fetches a
// source, keeps only the lines matching a pattern and streams them to a
// sink without holding the whole source in memory. It runs as an S3 object
// lambda function or locally against files, HTTP(S) and SSH sources.
package main

import "os"

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
