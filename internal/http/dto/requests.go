package dto

// PayRequest is the body of POST /pay/session and POST /pay/onetime.
// Every field is optional; a malformed body is treated as an empty request.
type PayRequest struct {
	WalletAddress   string         `json:"walletAddress,omitempty"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}
