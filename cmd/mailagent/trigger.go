package main

import (
	"context"
	"os"

	"go.uber.org/zap"
)

// relayTriggers calls trigger for every signal received on sigs until ctx
// is done.
func relayTriggers(ctx context.Context, sigs <-chan os.Signal, trigger func(), log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			log.Info("cycle requested by signal", zap.String("signal", sig.String()))
			trigger()
		}
	}
}
