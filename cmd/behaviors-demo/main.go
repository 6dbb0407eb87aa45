// Command behaviors-demo runs a clock host decorated with the stock
// behaviors and prints every render.
package main

func main() {
	Execute()
}
