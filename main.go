package main

import "github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/cmd"

func main() {
	cmd.Execute()
}
