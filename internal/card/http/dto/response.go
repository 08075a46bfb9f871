package dto

import (
	"time"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
)

const (
	expirationLayout   = "01/2006"
	localCreatedLayout = "02/01/2006 15:04:05"
	displayTimezone    = "America/Sao_Paulo"
)

// displayLocation falls back to a fixed UTC-3 zone when tzdata is unavailable.
var displayLocation = func() *time.Location {
	loc, err := time.LoadLocation(displayTimezone)
	if err != nil {
		return time.FixedZone(displayTimezone, -3*60*60)
	}
	return loc
}()

// CardResponse is the public representation of a card with decoded number and CVV.
type CardResponse struct {
	ID             string `json:"id"`
	HolderName     string `json:"holder_name"`
	TaxID          string `json:"tax_id"`
	Status         string `json:"status"`
	Address        string `json:"address"`
	CardNumber     string `json:"card_number"`
	CVV            string `json:"cvv"`
	Expiration     string `json:"expiration"`
	Balance        string `json:"balance"`
	CreatedAt      string `json:"created_at"`
	CreatedAtLocal string `json:"created_at_local"`
}

// IssueCardResponse is returned by card issuance and carries the holder session token.
type IssueCardResponse struct {
	CardResponse
	HolderToken          string    `json:"holder_token"`
	HolderTokenExpiresAt time.Time `json:"holder_token_expires_at"`
}

// ListCardsResponse wraps a list of cards.
type ListCardsResponse struct {
	Data []CardResponse `json:"data"`
}

// MapCardViewToResponse converts a decoded card into its response.
func MapCardViewToResponse(view *cardDomain.CardView) CardResponse {
	return CardResponse{
		ID:             view.ExternalID.String(),
		HolderName:     view.HolderName,
		TaxID:          view.TaxID,
		Status:         view.Status.String(),
		Address:        view.Address,
		CardNumber:     view.PlainCardNumber,
		CVV:            view.PlainCVV,
		Expiration:     view.ExpiresOn.UTC().Format(expirationLayout),
		Balance:        view.Balance.StringFixed(2),
		CreatedAt:      view.CreatedAt.UTC().Format(time.RFC3339),
		CreatedAtLocal: view.CreatedAt.In(displayLocation).Format(localCreatedLayout),
	}
}

// MapIssuedCardToResponse converts an issuance result into its response.
func MapIssuedCardToResponse(issued *cardDomain.IssuedCard) IssueCardResponse {
	return IssueCardResponse{
		CardResponse:         MapCardViewToResponse(&issued.CardView),
		HolderToken:          issued.Session.Token,
		HolderTokenExpiresAt: issued.Session.ExpiresAt.UTC(),
	}
}

// MapCardViewsToListResponse converts decoded cards into a list response.
func MapCardViewsToListResponse(views []*cardDomain.CardView) ListCardsResponse {
	data := make([]CardResponse, 0, len(views))
	for _, view := range views {
		data = append(data, MapCardViewToResponse(view))
	}
	return ListCardsResponse{Data: data}
}
