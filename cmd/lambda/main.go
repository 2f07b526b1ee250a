package main

import (
	"context"

	"pillarscan/internal/app"

	"github.com/akrylysov/algnhsa"
)

// The Lambda deployment serves the same chi router through the algnhsa
// adapter. Scan workers run inside the function; a scan must finish within
// the function timeout.
func main() {
	a := app.MustInitialize(context.Background())
	algnhsa.ListenAndServe(a.Router.Handler(), nil)
}
