package main

import "github.com/ferretwatch/ferretwatch/cmd/ferretwatch"

func main() { ferretwatch.Execute() }
