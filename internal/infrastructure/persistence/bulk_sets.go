package persistence

import (
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	"github.com/pancake-sync/backend/internal/domain/crm"
	"github.com/pancake-sync/backend/internal/domain/trade"
)

// Per-entity bulk set constructors. Each carries the entity's fixed update
// column list: reconciliation refreshes exactly these columns and nothing
// else, so local-only columns survive every sync pass.

// NewPageBulkSet creates the bulk set for sales channel pages
func NewPageBulkSet(db *gorm.DB) *GormBulkSet[catalog.Page] {
	return NewGormBulkSet[catalog.Page](db, "shop_id", "pancake_id", []string{
		"name", "platform", "is_active", "updated_at",
	})
}

// NewTagBulkSet creates the bulk set for order tags
func NewTagBulkSet(db *gorm.DB) *GormBulkSet[catalog.Tag] {
	return NewGormBulkSet[catalog.Tag](db, "shop_id", "pancake_id", []string{
		"name", "color", "updated_at",
	})
}

// NewProductBulkSet creates the bulk set for products
func NewProductBulkSet(db *gorm.DB) *GormBulkSet[catalog.Product] {
	return NewGormBulkSet[catalog.Product](db, "shop_id", "pancake_id", []string{
		"name", "display_id", "image_url", "note", "is_published", "weight",
		"category_refs", "tag_refs", "updated_at",
	})
}

// NewVariationFieldBulkSet creates the bulk set for variation fields
func NewVariationFieldBulkSet(db *gorm.DB) *GormBulkSet[catalog.VariationField] {
	return NewGormBulkSet[catalog.VariationField](db, "shop_id", "pancake_id", []string{
		"name", "value", "updated_at",
	})
}

// NewVariationBulkSet creates the bulk set for variations
func NewVariationBulkSet(db *gorm.DB) *GormBulkSet[catalog.Variation] {
	return NewGormBulkSet[catalog.Variation](db, "shop_id", "pancake_id", []string{
		"product_id", "display_id", "barcode",
		"retail_price", "price_at_counter", "last_imported_price", "total_purchase_price",
		"weight", "remain_quantity", "images",
		"is_hidden", "is_locked", "is_sell_negative", "updated_at",
	})
}

// NewUserBulkSet creates the bulk set for API actors; users carry no shop
// scope
func NewUserBulkSet(db *gorm.DB) *GormBulkSet[crm.User] {
	return NewGormBulkSet[crm.User](db, "", "pancake_id", []string{
		"name", "phone_number", "avatar_url", "updated_at",
	})
}

// NewCustomerBulkSet creates the bulk set for customers. The is_anonymous
// flag stays out of the update list so the sentinel can never be
// reclassified by a sync pass.
func NewCustomerBulkSet(db *gorm.DB) *GormBulkSet[crm.Customer] {
	return NewGormBulkSet[crm.Customer](db, "shop_id", "pancake_id", []string{
		"name", "emails", "phone_numbers", "gender", "date_of_birth", "level",
		"reward_point", "purchased_amount",
		"order_count", "succeed_orders", "returned_orders",
		"referral_code", "tags", "notes",
		"creator_id", "assigned_user_id",
		"remote_created_at", "remote_updated_at", "updated_at",
	})
}

// NewCustomerAddressBulkSet creates the bulk set for customer addresses
func NewCustomerAddressBulkSet(db *gorm.DB) *GormBulkSet[crm.CustomerAddress] {
	return NewGormBulkSet[crm.CustomerAddress](db, "customer_id", "pancake_id", []string{
		"full_name", "phone_number", "address",
		"commune_id", "district_id", "province_id", "country_code",
		"full_address", "updated_at",
	})
}

// NewOrderBulkSet creates the bulk set for orders
func NewOrderBulkSet(db *gorm.DB) *GormBulkSet[trade.Order] {
	return NewGormBulkSet[trade.Order](db, "shop_id", "pancake_id", []string{
		"system_id", "customer_id", "page_id",
		"creator_id", "assigning_seller_id", "assigning_care_id", "marketer_id", "last_editor_id",
		"status", "sub_status", "order_source",
		"total_price", "total_discount", "shipping_fee", "partner_fee",
		"prepaid", "cash", "transfer_money", "money_to_collect",
		"ads_spend", "returned_reason_value",
		"bill_full_name", "bill_phone_number", "note", "note_print",
		"utm_source", "utm_medium", "utm_campaign",
		"tag_refs", "statuses", "activated_promotions", "ads_source_data",
		"is_free_shipping", "is_livestream", "customer_needs_call", "received_at_shop", "is_smc",
		"remote_inserted_at", "remote_updated_at", "updated_at",
	})
}

// NewOrderItemBulkSet creates the bulk set for order lines
func NewOrderItemBulkSet(db *gorm.DB) *GormBulkSet[trade.OrderItem] {
	return NewGormBulkSet[trade.OrderItem](db, "order_id", "item_id", []string{
		"variation_id", "quantity", "discount_each", "total_discount",
		"is_bonus_product", "is_composite", "is_discount_percent", "is_wholesale",
		"variation_info", "note", "note_product", "updated_at",
	})
}

// NewShippingAddressBulkSet creates the bulk set for the one-to-one order
// shipping address; rows upsert on their order_id key
func NewShippingAddressBulkSet(db *gorm.DB) *GormBulkSet[trade.OrderShippingAddress] {
	return NewGormBulkSet[trade.OrderShippingAddress](db, "", "order_id", []string{
		"full_name", "phone_number", "address",
		"commnue_name", "district_name", "province_name", "country_name",
		"full_address", "post_code", "updated_at",
	})
}

// NewWarehouseBulkSet creates the bulk set for the one-to-one order
// warehouse snapshot
func NewWarehouseBulkSet(db *gorm.DB) *GormBulkSet[trade.OrderWarehouse] {
	return NewGormBulkSet[trade.OrderWarehouse](db, "", "order_id", []string{
		"pancake_id", "name", "phone_number", "full_address", "updated_at",
	})
}

// NewPartnerBulkSet creates the bulk set for the one-to-one shipping
// partner snapshot
func NewPartnerBulkSet(db *gorm.DB) *GormBulkSet[trade.OrderPartner] {
	return NewGormBulkSet[trade.OrderPartner](db, "", "order_id", []string{
		"partner_id", "partner_name", "extend_code", "order_number_vtp", "sort_code",
		"cod", "total_fee", "extend_update", "updated_at",
	})
}

// NewStatusHistoryBulkSet creates the set for order status histories;
// history rows have no remote identity and are replaced wholesale
func NewStatusHistoryBulkSet(db *gorm.DB) *GormBulkSet[trade.OrderStatusHistory] {
	return NewGormBulkSet[trade.OrderStatusHistory](db, "order_id", "id", nil)
}

// NewOrderHistoryBulkSet creates the set for order edit histories;
// replaced wholesale like status histories
func NewOrderHistoryBulkSet(db *gorm.DB) *GormBulkSet[trade.OrderHistory] {
	return NewGormBulkSet[trade.OrderHistory](db, "order_id", "id", nil)
}
