package pancake

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// RemoteID is a remote identifier that arrives as either a JSON string or a
// JSON number depending on the endpoint.
type RemoteID string

// UnmarshalJSON implements json.Unmarshaler
func (r *RemoteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RemoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = RemoteID(n.String())
	return nil
}

// String returns the id as a plain string
func (r RemoteID) String() string {
	return string(r)
}

// Int returns the id as an integer, zero when it is not numeric
func (r RemoteID) Int() int {
	n, err := strconv.Atoi(string(r))
	if err != nil {
		return 0
	}
	return n
}

// envelope is the common paginated response shape of the remote API
type envelope struct {
	Success    bool            `json:"success"`
	PageNumber int             `json:"page_number"`
	TotalPages int             `json:"total_pages"`
	Data       json.RawMessage `json:"data"`
}

// shopsEnvelope is the shape of the tenant listing endpoint
type shopsEnvelope struct {
	Success bool         `json:"success"`
	Shops   []RemoteShop `json:"shops"`
}

// Page is one decoded page of a remote collection
type Page[T any] struct {
	Number     int
	TotalPages int
	Data       []T
}

// RemoteShop is a tenant record; pages and tags arrive embedded
type RemoteShop struct {
	ID        RemoteID    `json:"id"`
	Name      string      `json:"name"`
	Currency  string      `json:"currency"`
	AvatarURL string      `json:"avatar_url"`
	Pages     []RemotePage `json:"pages"`
	Tags      []RemoteTag  `json:"tags"`
}

// RemotePage is a sales channel page embedded in the shop payload
type RemotePage struct {
	ID       RemoteID `json:"id"`
	Name     string   `json:"name"`
	Platform string   `json:"platform"`
	IsActive *bool    `json:"is_activated"`
}

// RemoteTag is an order tag embedded in the shop payload
type RemoteTag struct {
	ID    RemoteID `json:"id"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
}

// RemoteCategory is one node of the two-level category listing
type RemoteCategory struct {
	ID    RemoteID         `json:"id"`
	Name  string           `json:"text"`
	Nodes []RemoteCategory `json:"nodes"`
}

// RemoteVariationField is one attribute value of a variation
type RemoteVariationField struct {
	ID    RemoteID `json:"id"`
	Name  string   `json:"name"`
	Value string   `json:"value"`
}

// RemoteVariation is a sellable variant embedded in the product payload
type RemoteVariation struct {
	ID                 RemoteID               `json:"id"`
	DisplayID          string                 `json:"display_id"`
	Barcode            string                 `json:"barcode"`
	RetailPrice        *decimal.Decimal       `json:"retail_price"`
	PriceAtCounter     *decimal.Decimal       `json:"price_at_counter"`
	LastImportedPrice  *decimal.Decimal       `json:"last_imported_price"`
	TotalPurchasePrice *decimal.Decimal       `json:"total_purchase_price"`
	Weight             int                    `json:"weight"`
	RemainQuantity     int                    `json:"remain_quantity"`
	Images             json.RawMessage        `json:"images"`
	IsHidden           bool                   `json:"is_hidden"`
	IsLocked           bool                   `json:"is_locked"`
	IsSellNegative     bool                   `json:"is_sell_negative_variation"`
	Fields             []RemoteVariationField `json:"fields"`
}

// RemoteProduct is one product record with its variations embedded
type RemoteProduct struct {
	ID          RemoteID          `json:"id"`
	Name        string            `json:"name"`
	DisplayID   string            `json:"display_id"`
	ImageURL    string            `json:"image"`
	Note        string            `json:"note_product"`
	IsPublished bool              `json:"is_published"`
	Weight      int               `json:"weight"`
	CategoryIDs []RemoteID        `json:"category_ids"`
	Tags        json.RawMessage   `json:"tags"`
	Variations  []RemoteVariation `json:"variations"`
}

// RemoteUser is a remote API actor
type RemoteUser struct {
	ID          RemoteID `json:"id"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	AvatarURL   string   `json:"avatar_url"`
}

// RemoteCustomerAddress is one delivery address embedded in the customer payload
type RemoteCustomerAddress struct {
	ID          RemoteID `json:"id"`
	FullName    string   `json:"full_name"`
	PhoneNumber string   `json:"phone_number"`
	Address     string   `json:"address"`
	CommuneID   RemoteID `json:"commune_id"`
	DistrictID  RemoteID `json:"district_id"`
	ProvinceID  RemoteID `json:"province_id"`
	CountryCode RemoteID `json:"country_code"`
	FullAddress string   `json:"full_address"`
}

// RemoteCustomer is one buyer record with addresses embedded
type RemoteCustomer struct {
	ID              RemoteID                `json:"id"`
	Name            string                  `json:"name"`
	Emails          json.RawMessage         `json:"emails"`
	PhoneNumbers    json.RawMessage         `json:"phone_numbers"`
	Gender          string                  `json:"gender"`
	DateOfBirth     string                  `json:"date_of_birth"`
	Level           string                  `json:"level"`
	RewardPoint     *decimal.Decimal        `json:"reward_point"`
	PurchasedAmount *decimal.Decimal        `json:"purchased_amount"`
	OrderCount      int                     `json:"order_count"`
	SucceedOrders   int                     `json:"succeed_order_count"`
	ReturnedOrders  int                     `json:"returned_order_count"`
	ReferralCode    string                  `json:"referral_code"`
	Tags            json.RawMessage         `json:"tags"`
	Notes           json.RawMessage         `json:"notes"`
	CreatorID       RemoteID                `json:"creator_id"`
	AssignedUserID  RemoteID                `json:"assigned_user_id"`
	InsertedAt      string                  `json:"inserted_at"`
	UpdatedAt       string                  `json:"updated_at"`
	Addresses       []RemoteCustomerAddress `json:"shop_customer_addresses"`
}

// RemoteShippingAddress is the one-to-one delivery address of an order.
// The commnue_name key mirrors the remote API's own field name.
type RemoteShippingAddress struct {
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	Address      string `json:"address"`
	CommuneName  string `json:"commnue_name"`
	DistrictName string `json:"district_name"`
	ProvinceName string `json:"province_name"`
	CountryName  string `json:"country_name"`
	FullAddress  string `json:"full_address"`
	PostCode     string `json:"post_code"`
}

// RemoteWarehouse is the warehouse snapshot embedded in the order payload
type RemoteWarehouse struct {
	ID          RemoteID `json:"id"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	FullAddress string   `json:"full_address"`
}

// RemotePartner is the shipping partner snapshot embedded in the order payload
type RemotePartner struct {
	PartnerID      RemoteID         `json:"partner_id"`
	PartnerName    string           `json:"partner_name"`
	ExtendCode     string           `json:"extend_code"`
	OrderNumberVTP string           `json:"order_number_vtp"`
	SortCode       string           `json:"sort_code"`
	COD            *decimal.Decimal `json:"cod"`
	TotalFee       *decimal.Decimal `json:"total_fee"`
	ExtendUpdate   json.RawMessage  `json:"extend_update"`
}

// RemoteOrderItem is one order line embedded in the order payload
type RemoteOrderItem struct {
	ID                RemoteID         `json:"id"`
	VariationID       RemoteID         `json:"variation_id"`
	Quantity          int              `json:"quantity"`
	DiscountEach      *decimal.Decimal `json:"discount_each_product"`
	TotalDiscount     *decimal.Decimal `json:"total_discount"`
	IsBonusProduct    bool             `json:"is_bonus_product"`
	IsComposite       bool             `json:"is_composite"`
	IsDiscountPercent bool             `json:"is_discount_percent"`
	IsWholesale       bool             `json:"is_wholesale"`
	VariationInfo     json.RawMessage  `json:"variation_info"`
	Note              string           `json:"note"`
	NoteProduct       string           `json:"note_product"`
}

// RemoteStatusHistory is one status transition embedded in the order payload
type RemoteStatusHistory struct {
	Status    int      `json:"status"`
	EditorID  RemoteID `json:"editor_id"`
	UpdatedAt string   `json:"updated_at"`
}

// RemoteHistory is one generic edit entry embedded in the order payload
type RemoteHistory struct {
	EditorID  RemoteID        `json:"editor_id"`
	Changes   json.RawMessage `json:"changes"`
	UpdatedAt string          `json:"updated_at"`
}

// RemoteOrder is one order record with all sub-structures embedded
type RemoteOrder struct {
	ID                RemoteID         `json:"id"`
	SystemID          RemoteID         `json:"system_id"`
	CustomerID        RemoteID         `json:"customer_id"`
	Customer          *RemoteCustomer  `json:"customer"`
	PageID            RemoteID         `json:"page_id"`
	CreatorID         RemoteID         `json:"creator_id"`
	AssigningSellerID RemoteID         `json:"assigning_seller_id"`
	AssigningCareID   RemoteID         `json:"assigning_care_id"`
	MarketerID        RemoteID         `json:"marketer_id"`
	LastEditorID      RemoteID         `json:"last_editor_id"`
	Status            int              `json:"status"`
	SubStatus         int              `json:"sub_status"`
	StatusName        string           `json:"status_name"`
	OrderSource       int              `json:"order_sources"`
	OrderSourcesName  string           `json:"order_sources_name"`

	TotalPrice          *decimal.Decimal `json:"total_price"`
	TotalDiscount       *decimal.Decimal `json:"total_discount"`
	ShippingFee         *decimal.Decimal `json:"shipping_fee"`
	PartnerFee          *decimal.Decimal `json:"partner_fee"`
	Prepaid             *decimal.Decimal `json:"prepaid"`
	Cash                *decimal.Decimal `json:"cash"`
	TransferMoney       *decimal.Decimal `json:"transfer_money"`
	MoneyToCollect      *decimal.Decimal `json:"money_to_collect"`
	AdsSpend            *decimal.Decimal `json:"ads_spend"`
	ReturnedReasonValue *decimal.Decimal `json:"returned_reason_value"`

	BillFullName    string `json:"bill_full_name"`
	BillPhoneNumber string `json:"bill_phone_number"`
	Note            string `json:"note"`
	NotePrint       string `json:"note_print"`

	UTMSource   string `json:"p_utm_source"`
	UTMMedium   string `json:"p_utm_medium"`
	UTMCampaign string `json:"p_utm_campaign"`

	Tags                json.RawMessage `json:"tags"`
	Statuses            json.RawMessage `json:"statuses"`
	ActivatedPromotions json.RawMessage `json:"activated_combo_products"`
	AdsSourceData       json.RawMessage `json:"ads_source_data"`

	IsFreeShipping    bool `json:"is_free_shipping"`
	IsLivestream      bool `json:"is_livestream"`
	CustomerNeedsCall bool `json:"customer_needs_call"`
	ReceivedAtShop    bool `json:"received_at_shop"`
	IsSmc             bool `json:"is_smc"`

	InsertedAt string `json:"inserted_at"`
	UpdatedAt  string `json:"updated_at"`

	ShippingAddress *RemoteShippingAddress `json:"shipping_address"`
	Warehouse       *RemoteWarehouse       `json:"warehouse_info"`
	Partner         *RemotePartner         `json:"partner"`
	Items           []RemoteOrderItem      `json:"items"`
	StatusHistories []RemoteStatusHistory  `json:"status_history"`
	Histories       []RemoteHistory        `json:"histories"`
}
