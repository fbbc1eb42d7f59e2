// Command kvs-client sends a single Set, Get, or Remove request to a
// running kvs-server and prints the result.
package main

import (
	"fmt"
	"os"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/client"
	flag "github.com/spf13/pflag"
)

func main() {
	var addr string
	flag.StringVar(&addr, "addr", "127.0.0.1:4000", "server address")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	c, err := client.Connect(addr)
	if err != nil {
		fail(err)
	}
	defer c.Close()

	switch args[0] {
	case "set":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		if err := c.Set(args[1], args[2]); err != nil {
			fail(err)
		}

	case "get":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		value, ok, err := c.Get(args[1])
		if err != nil {
			fail(err)
		}
		if !ok {
			fmt.Println("Key not found")
			return
		}
		fmt.Println(value)

	case "rm":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := c.Remove(args[1]); err != nil {
			fail(err)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kvs-client [--addr host:port] set KEY VALUE | get KEY | rm KEY")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "kvs-client:", err)
	os.Exit(1)
}
