package models

import "time"

// PixKeyType is the kind of PIX key a seller receives payments with.
type PixKeyType string

const (
	PixCPF    PixKeyType = "cpf"
	PixCNPJ   PixKeyType = "cnpj"
	PixEmail  PixKeyType = "email"
	PixPhone  PixKeyType = "phone"
	PixRandom PixKeyType = "random"
)

// StoreProfile is the seller's storefront, stored under the seller's user id.
type StoreProfile struct {
	SellerID         string     `json:"id"`
	StoreName        string     `json:"storeName" validate:"required"`
	StoreOwner       string     `json:"storeOwner"`
	StoreDescription string     `json:"storeDescription"`
	StoreLogo        string     `json:"storeLogo,omitempty"`
	PixKey           string     `json:"pixKey,omitempty" validate:"required_with=PixKeyType"`
	PixKeyType       PixKeyType `json:"pixKeyType,omitempty" validate:"omitempty,oneof=cpf cnpj email phone random"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// StorePatch is a partial storefront update.
type StorePatch struct {
	StoreName        *string `validate:"omitempty,min=1"`
	StoreOwner       *string
	StoreDescription *string
	StoreLogo        *string
	PixKey           *string
	PixKeyType       *PixKeyType `validate:"omitempty,oneof=cpf cnpj email phone random"`
}

func (sp StorePatch) Apply(s StoreProfile) StoreProfile {
	if sp.StoreName != nil {
		s.StoreName = *sp.StoreName
	}
	if sp.StoreOwner != nil {
		s.StoreOwner = *sp.StoreOwner
	}
	if sp.StoreDescription != nil {
		s.StoreDescription = *sp.StoreDescription
	}
	if sp.StoreLogo != nil {
		s.StoreLogo = *sp.StoreLogo
	}
	if sp.PixKey != nil {
		s.PixKey = *sp.PixKey
	}
	if sp.PixKeyType != nil {
		s.PixKeyType = *sp.PixKeyType
	}
	return s
}
