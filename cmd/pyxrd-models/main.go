// Command pyxrd-models inspects model class definitions and persisted object
// documents, and moves documents in and out of a badger store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
