package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/cardledger/internal/card/http/dto"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
)

// IssueCardArgs are the holder attributes given on the command line.
type IssueCardArgs struct {
	HolderName string
	TaxID      string
	Address    string
}

// RunIssueCard issues a card with the same normalization and validation as the HTTP API
// and prints the decoded card with the holder session token.
func RunIssueCard(
	ctx context.Context,
	useCase cardUseCase.CardUseCase,
	logger *slog.Logger,
	args IssueCardArgs,
	format string,
	writer io.Writer,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	req := dto.IssueCardRequest{
		HolderName: args.HolderName,
		TaxID:      args.TaxID,
		Address:    args.Address,
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid card data: %w", err)
	}

	issued, err := useCase.Issue(ctx, req.ToInput())
	if err != nil {
		return fmt.Errorf("failed to issue card: %w", err)
	}

	response := dto.MapIssuedCardToResponse(issued)
	logger.Info("card issued", slog.String("card_id", response.ID))

	if format == "json" {
		return writeJSON(writer, response)
	}

	_, _ = fmt.Fprintf(writer, "Card ID:       %s\n", response.ID)
	_, _ = fmt.Fprintf(writer, "Holder:        %s\n", response.HolderName)
	_, _ = fmt.Fprintf(writer, "Tax ID:        %s\n", response.TaxID)
	_, _ = fmt.Fprintf(writer, "Status:        %s\n", response.Status)
	_, _ = fmt.Fprintf(writer, "Card number:   %s\n", response.CardNumber)
	_, _ = fmt.Fprintf(writer, "CVV:           %s\n", response.CVV)
	_, _ = fmt.Fprintf(writer, "Expiration:    %s\n", response.Expiration)
	_, _ = fmt.Fprintf(writer, "Balance:       %s\n", response.Balance)
	_, _ = fmt.Fprintf(writer, "Holder token:  %s\n", response.HolderToken)
	_, _ = fmt.Fprintf(writer, "Token expires: %s\n", response.HolderTokenExpiresAt.Format(time.RFC3339))
	return nil
}
