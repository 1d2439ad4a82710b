package token

import "errors"

// MetadataSpec is the NEP-177 version implemented by ContractMetadata.
const MetadataSpec = "nft-1.0.0"

// ErrInvalidContractMetadata is returned by ContractMetadata.Validate.
var ErrInvalidContractMetadata = errors.New("token: invalid contract metadata")

// ContractMetadata is the NEP-177 metadata describing the whole registry.
type ContractMetadata struct {
	Spec          string  `json:"spec"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Icon          *string `json:"icon,omitempty"`
	BaseURI       *string `json:"base_uri,omitempty"`
	Reference     *string `json:"reference,omitempty"`
	ReferenceHash *string `json:"reference_hash,omitempty"`
}

// DefaultContractMetadata describes an unnamed registry.
func DefaultContractMetadata() ContractMetadata {
	return ContractMetadata{
		Spec:   MetadataSpec,
		Name:   "Mintage non-fungible tokens",
		Symbol: "MINT",
	}
}

// Validate checks that the required fields are present and that a
// reference hash only accompanies a reference.
func (c ContractMetadata) Validate() error {
	switch {
	case c.Spec == "":
		return errors.Join(ErrInvalidContractMetadata, errors.New("spec is required"))
	case c.Name == "":
		return errors.Join(ErrInvalidContractMetadata, errors.New("name is required"))
	case c.Symbol == "":
		return errors.Join(ErrInvalidContractMetadata, errors.New("symbol is required"))
	case (c.Reference == nil) != (c.ReferenceHash == nil):
		return errors.Join(ErrInvalidContractMetadata, errors.New("reference and reference_hash must be set together"))
	}
	return nil
}
