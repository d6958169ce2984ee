package sync

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	"github.com/pancake-sync/backend/internal/domain/crm"
	"github.com/pancake-sync/backend/internal/domain/shared"
	"github.com/pancake-sync/backend/internal/domain/trade"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// timeLayouts are tried in order when parsing remote timestamps. Naive
// values are assumed UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime normalizes a remote timestamp string to UTC. Returns nil for
// empty or unparseable input.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// decOrZero coalesces an absent decimal to zero so aggregate queries stay
// total-safe.
func decOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// rawJSON stores an embedded JSON sub-structure verbatim
func rawJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	return string(raw)
}

// errMissingRemoteID marks a record that cannot be reconciled. The record
// is skipped and counted, never fatal for the batch.
var errMissingRemoteID = shared.NewDomainError("MISSING_REMOTE_ID", "Record has no remote id")

func normalizePage(shopID uuid.UUID, rec pancake.RemotePage) (*catalog.Page, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	page := catalog.NewPage(shopID, rec.ID.String(), rec.Name)
	page.Platform = rec.Platform
	if rec.IsActive != nil {
		page.IsActive = *rec.IsActive
	}
	return page, nil
}

func normalizeTag(shopID uuid.UUID, rec pancake.RemoteTag) (*catalog.Tag, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	tag := catalog.NewTag(shopID, rec.ID.String(), rec.Name)
	tag.Color = rec.Color
	return tag, nil
}

func normalizeCategory(shopID uuid.UUID, rec pancake.RemoteCategory, parentID *uuid.UUID) (*catalog.Category, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	category := catalog.NewCategory(shopID, rec.ID.String(), rec.Name)
	category.ParentID = parentID
	return category, nil
}

func normalizeProduct(shopID uuid.UUID, rec pancake.RemoteProduct) (*catalog.Product, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	product := catalog.NewProduct(shopID, rec.ID.String(), rec.Name)
	product.DisplayID = rec.DisplayID
	product.ImageURL = rec.ImageURL
	product.Note = rec.Note
	product.IsPublished = rec.IsPublished
	product.Weight = rec.Weight
	product.TagRefs = rawJSON(rec.Tags)
	if len(rec.CategoryIDs) > 0 {
		ids := make([]string, 0, len(rec.CategoryIDs))
		for _, id := range rec.CategoryIDs {
			ids = append(ids, id.String())
		}
		if raw, err := json.Marshal(ids); err == nil {
			product.CategoryRefs = string(raw)
		}
	}
	return product, nil
}

func normalizeVariationField(shopID uuid.UUID, rec pancake.RemoteVariationField) (*catalog.VariationField, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	return &catalog.VariationField{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		PancakeID:  rec.ID.String(),
		Name:       rec.Name,
		Value:      rec.Value,
	}, nil
}

func normalizeVariation(shopID, productID uuid.UUID, rec pancake.RemoteVariation) (*catalog.Variation, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	return &catalog.Variation{
		BaseEntity:         shared.NewBaseEntity(),
		ShopID:             shopID,
		PancakeID:          rec.ID.String(),
		ProductID:          productID,
		DisplayID:          rec.DisplayID,
		Barcode:            rec.Barcode,
		RetailPrice:        decOrZero(rec.RetailPrice),
		PriceAtCounter:     decOrZero(rec.PriceAtCounter),
		LastImportedPrice:  decOrZero(rec.LastImportedPrice),
		TotalPurchasePrice: decOrZero(rec.TotalPurchasePrice),
		Weight:             rec.Weight,
		RemainQuantity:     rec.RemainQuantity,
		Images:             rawJSON(rec.Images),
		IsHidden:           rec.IsHidden,
		IsLocked:           rec.IsLocked,
		IsSellNegative:     rec.IsSellNegative,
	}, nil
}

func normalizeUser(rec pancake.RemoteUser) (*crm.User, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	user := crm.NewUser(rec.ID.String(), rec.Name)
	user.PhoneNumber = rec.PhoneNumber
	user.AvatarURL = rec.AvatarURL
	return user, nil
}

// normalizeCustomer builds a customer draft. User references absent from
// the lookup maps stay null; absence is valid.
func normalizeCustomer(shopID uuid.UUID, rec pancake.RemoteCustomer, users map[string]*crm.User) (*crm.Customer, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	customer := crm.NewCustomer(shopID, rec.ID.String(), rec.Name)
	customer.Emails = rawJSON(rec.Emails)
	customer.PhoneNumbers = rawJSON(rec.PhoneNumbers)
	customer.Gender = rec.Gender
	customer.DateOfBirth = parseTime(rec.DateOfBirth)
	customer.Level = rec.Level
	customer.RewardPoint = decOrZero(rec.RewardPoint)
	customer.PurchasedAmount = decOrZero(rec.PurchasedAmount)
	customer.OrderCount = rec.OrderCount
	customer.SucceedOrders = rec.SucceedOrders
	customer.ReturnedOrders = rec.ReturnedOrders
	customer.ReferralCode = rec.ReferralCode
	customer.Tags = rawJSON(rec.Tags)
	customer.Notes = rawJSON(rec.Notes)
	customer.RemoteCreatedAt = parseTime(rec.InsertedAt)
	customer.RemoteUpdatedAt = parseTime(rec.UpdatedAt)
	customer.CreatorID = userRef(users, rec.CreatorID)
	customer.AssignedUserID = userRef(users, rec.AssignedUserID)
	return customer, nil
}

func normalizeAddress(customerID uuid.UUID, rec pancake.RemoteCustomerAddress) (*crm.CustomerAddress, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	return &crm.CustomerAddress{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		PancakeID:   rec.ID.String(),
		FullName:    rec.FullName,
		PhoneNumber: rec.PhoneNumber,
		Address:     rec.Address,
		CommuneID:   rec.CommuneID.String(),
		DistrictID:  rec.DistrictID.String(),
		ProvinceID:  rec.ProvinceID.String(),
		CountryCode: rec.CountryCode.String(),
		FullAddress: rec.FullAddress,
	}, nil
}

// userRef resolves a remote user reference against the bulk-loaded map;
// unresolved references stay null
func userRef(users map[string]*crm.User, id pancake.RemoteID) *uuid.UUID {
	if id == "" {
		return nil
	}
	if u, ok := users[id.String()]; ok {
		ref := u.ID
		return &ref
	}
	return nil
}

// orderRefs bundles the bulk-loaded lookup maps one order page resolves
// against
type orderRefs struct {
	customers  map[string]*crm.Customer
	users      map[string]*crm.User
	pages      map[string]*catalog.Page
	variations map[string]*catalog.Variation
	sentinel   *crm.Customer
}

// normalizeOrder builds an order draft. A remote customer id missing from
// the lookup map substitutes the sentinel and records the original id on
// the note for later reassignment.
func normalizeOrder(shopID uuid.UUID, rec pancake.RemoteOrder, refs orderRefs) (*trade.Order, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}

	order := trade.NewOrder(shopID, rec.ID.String(), refs.sentinel.ID)
	order.SystemID = rec.SystemID.String()
	order.Note = rec.Note

	customerID := rec.CustomerID
	if customerID == "" && rec.Customer != nil {
		customerID = rec.Customer.ID
	}
	if customerID != "" {
		if c, ok := refs.customers[customerID.String()]; ok {
			order.CustomerID = c.ID
		} else {
			order.AnnotateMissingCustomer(customerID.String())
		}
	}

	if rec.PageID != "" {
		if p, ok := refs.pages[rec.PageID.String()]; ok {
			ref := p.ID
			order.PageID = &ref
		}
	}
	order.CreatorID = userRef(refs.users, rec.CreatorID)
	order.AssigningSellerID = userRef(refs.users, rec.AssigningSellerID)
	order.AssigningCareID = userRef(refs.users, rec.AssigningCareID)
	order.MarketerID = userRef(refs.users, rec.MarketerID)
	order.LastEditorID = userRef(refs.users, rec.LastEditorID)

	order.Status = rec.Status
	order.SubStatus = rec.SubStatus
	order.OrderSource = rec.OrderSource

	order.TotalPrice = decOrZero(rec.TotalPrice)
	order.TotalDiscount = decOrZero(rec.TotalDiscount)
	order.ShippingFee = decOrZero(rec.ShippingFee)
	order.PartnerFee = decOrZero(rec.PartnerFee)
	order.Prepaid = decOrZero(rec.Prepaid)
	order.Cash = decOrZero(rec.Cash)
	order.TransferMoney = decOrZero(rec.TransferMoney)
	order.MoneyToCollect = decOrZero(rec.MoneyToCollect)
	order.AdsSpend = decOrZero(rec.AdsSpend)
	order.ReturnedReasonValue = decOrZero(rec.ReturnedReasonValue)

	order.BillFullName = rec.BillFullName
	order.BillPhoneNumber = rec.BillPhoneNumber
	order.NotePrint = rec.NotePrint
	order.UTMSource = rec.UTMSource
	order.UTMMedium = rec.UTMMedium
	order.UTMCampaign = rec.UTMCampaign

	order.TagRefs = rawJSON(rec.Tags)
	order.Statuses = rawJSON(rec.Statuses)
	order.ActivatedPromotions = rawJSON(rec.ActivatedPromotions)
	order.AdsSourceData = rawJSON(rec.AdsSourceData)

	order.IsFreeShipping = rec.IsFreeShipping
	order.IsLivestream = rec.IsLivestream
	order.CustomerNeedsCall = rec.CustomerNeedsCall
	order.ReceivedAtShop = rec.ReceivedAtShop
	order.IsSmc = rec.IsSmc

	order.RemoteInsertedAt = parseTime(rec.InsertedAt)
	order.RemoteUpdatedAt = parseTime(rec.UpdatedAt)
	return order, nil
}

func normalizeOrderItem(orderID uuid.UUID, rec pancake.RemoteOrderItem, variations map[string]*catalog.Variation) (*trade.OrderItem, error) {
	if rec.ID == "" {
		return nil, errMissingRemoteID
	}
	item := &trade.OrderItem{
		BaseEntity:        shared.NewBaseEntity(),
		OrderID:           orderID,
		ItemID:            rec.ID.String(),
		Quantity:          rec.Quantity,
		DiscountEach:      decOrZero(rec.DiscountEach),
		TotalDiscount:     decOrZero(rec.TotalDiscount),
		IsBonusProduct:    rec.IsBonusProduct,
		IsComposite:       rec.IsComposite,
		IsDiscountPercent: rec.IsDiscountPercent,
		IsWholesale:       rec.IsWholesale,
		VariationInfo:     rawJSON(rec.VariationInfo),
		Note:              rec.Note,
		NoteProduct:       rec.NoteProduct,
	}
	if rec.VariationID != "" {
		if v, ok := variations[rec.VariationID.String()]; ok {
			ref := v.ID
			item.VariationID = &ref
		}
	}
	return item, nil
}

func normalizeShippingAddress(orderID uuid.UUID, rec pancake.RemoteShippingAddress) *trade.OrderShippingAddress {
	return &trade.OrderShippingAddress{
		BaseEntity:   shared.NewBaseEntity(),
		OrderID:      orderID,
		FullName:     rec.FullName,
		PhoneNumber:  rec.PhoneNumber,
		Address:      rec.Address,
		CommuneName:  rec.CommuneName,
		DistrictName: rec.DistrictName,
		ProvinceName: rec.ProvinceName,
		CountryName:  rec.CountryName,
		FullAddress:  rec.FullAddress,
		PostCode:     rec.PostCode,
	}
}

func normalizeWarehouse(orderID uuid.UUID, rec pancake.RemoteWarehouse) *trade.OrderWarehouse {
	return &trade.OrderWarehouse{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     orderID,
		PancakeID:   rec.ID.String(),
		Name:        rec.Name,
		PhoneNumber: rec.PhoneNumber,
		FullAddress: rec.FullAddress,
	}
}

func normalizePartner(orderID uuid.UUID, rec pancake.RemotePartner) *trade.OrderPartner {
	return &trade.OrderPartner{
		BaseEntity:     shared.NewBaseEntity(),
		OrderID:        orderID,
		PartnerID:      rec.PartnerID.String(),
		PartnerName:    rec.PartnerName,
		ExtendCode:     rec.ExtendCode,
		OrderNumberVTP: rec.OrderNumberVTP,
		SortCode:       rec.SortCode,
		COD:            decOrZero(rec.COD),
		TotalFee:       decOrZero(rec.TotalFee),
		ExtendUpdate:   rawJSON(rec.ExtendUpdate),
	}
}

func normalizeStatusHistory(orderID uuid.UUID, rec pancake.RemoteStatusHistory, users map[string]*crm.User) *trade.OrderStatusHistory {
	return &trade.OrderStatusHistory{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		Status:     rec.Status,
		EditorID:   userRef(users, rec.EditorID),
		ChangedAt:  parseTime(rec.UpdatedAt),
	}
}

func normalizeHistory(orderID uuid.UUID, rec pancake.RemoteHistory, users map[string]*crm.User) *trade.OrderHistory {
	return &trade.OrderHistory{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		EditorID:   userRef(users, rec.EditorID),
		Changes:    rawJSON(rec.Changes),
		EditedAt:   parseTime(rec.UpdatedAt),
	}
}
