package main

import "bookmeter-scraper/internal/cli"

func main() {
	cli.Execute()
}
