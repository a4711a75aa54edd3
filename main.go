package main

import "moodtrack/internal/app"

func main() {
	app.Main()
}
