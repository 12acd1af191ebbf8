package bot

// Callback uniques. Payloads are built with callbacks.Join.
const (
	cbMenu    = "menu"
	cbCatalog = "catalog"
	cbCat     = "cat"
	cbSub     = "sub"
	cbProduct = "prod"
	cbAdd     = "add"

	cbCart      = "cart"
	cbCartInc   = "cart_inc"
	cbCartDec   = "cart_dec"
	cbCartQty   = "cart_qty"
	cbCartRm    = "cart_rm"
	cbCartClear = "cart_clear"

	cbCheckout     = "checkout"
	cbCheckoutZone = "checkout_zone"
	cbConfirm      = "co_confirm"
	cbEditAddress  = "co_edit"
	cbCancel       = "co_cancel"

	cbOrders = "orders"
	cbOrder  = "order"

	cbReviewPick   = "rv_pick"
	cbReviewStar   = "rv_star"
	cbReviewSave   = "rv_save"
	cbReviewCancel = "rv_cancel"

	cbAbout   = "about"
	cbSupport = "support"
)
