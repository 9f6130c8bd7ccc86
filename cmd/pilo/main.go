// Command pilo es el cliente de terminal de Pilo: inicia sesión contra el backend,
// consulta productos por código de barras, escanea imágenes y exporta el historial.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pilo: %v\n", err)
		os.Exit(1)
	}
}
