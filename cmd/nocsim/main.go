// Command nocsim runs cycle-accurate simulations of on-chip networks.
package main

func main() {
	Execute()
}
