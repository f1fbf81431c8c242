// Package main is the entry point of the sprinthealth CLI.
package main

import (
	"github.com/huangsam/sprinthealth/cmd"
	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("Error running sprinthealth", err)
	}
}
