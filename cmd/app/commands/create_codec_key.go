package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
)

// RunCreateCodecKey prints a fresh CODEC_SECRET_KEY. When kmsKeyURI is set the key is
// wrapped by that KMS key and KMS_PROVIDER/KMS_KEY_URI must be configured to load it.
func RunCreateCodecKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
) error {
	logger.Info("generating codec key", slog.Bool("kms_wrapped", kmsKeyURI != ""))

	encoded, err := cryptoService.GenerateCodecKey(ctx, kmsKeyURI, kmsService)
	if err != nil {
		return fmt.Errorf("failed to create codec key: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "# Codec key for the sensitive field codec and holder session tokens")
	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	}
	_, _ = fmt.Fprintf(writer, "CODEC_SECRET_KEY=\"%s\"\n", encoded)

	return nil
}
