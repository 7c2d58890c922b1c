// statsmgr manages users, groups, counters, API tokens and message overrides of a go-pugwiki site
//
// Usage:
//
//	statsmgr user create --username alice --email alice@example.com
//	statsmgr group add alice sysop
//	statsmgr stats show
//	statsmgr stats refresh-active
//	statsmgr token create --owner deploy --ttl 720h
//	statsmgr message set statistics-footer "See also [[Project:Stats]]" --lang en
package main

import (
	"fmt"
	"os"

	"github.com/go-while/go-pugwiki/internal/config"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
