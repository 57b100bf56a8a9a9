//go:build !gui

package main

func initGUI() {
	panic("panokeet: built without GUI support (rebuild with -tags gui)")
}
