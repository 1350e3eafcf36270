//go:build !windows || debug

package main

func manageConsole(debugging bool) {}
