// Command dexbrowse browses the record catalog from a terminal or serves it
// over HTTP.
package main

func main() {
	Execute()
}
