package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sensemaker/internal/codec"
	"sensemaker/internal/domain"
	"sensemaker/internal/method"
	"sensemaker/internal/service"
	"sensemaker/internal/watcher"
)

// withService opens the ledger for one command and closes it afterwards.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) (err error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	l, err := openLedger(cfg.Ledger, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, l.Close())
	}()
	return fn(cmd.Context(), service.New(l, cfg.Ledger.Author, nil, logger))
}

func runRegister(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		out := codec.NewJSONCodec()
		var errs []error
		for _, path := range args {
			reg, err := watcher.LoadFile(ctx, svc, path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := out.Export(reg, cmd.OutOrStdout()); err != nil {
				return err
			}
		}
		return errors.Join(errs...)
	})
}

func runRunMethod(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		res, err := svc.RunMethod(ctx, method.RunInput{
			Resource:    domain.Address(runResource),
			ResourceDef: domain.Address(runResourceDef),
			Method:      domain.Address(runMethod),
		})
		if err != nil {
			return fmt.Errorf("run method: %w", err)
		}
		return codec.NewJSONCodec().Export(res, cmd.OutOrStdout())
	})
}
