package bot

import tele "gopkg.in/telebot.v4"

// Callbacks is the dispatch table of inline buttons keyed by unique.
func (h *Handlers) Callbacks() map[string]tele.HandlerFunc {
	table := map[string]tele.HandlerFunc{
		cbMenu:    h.OnMenu,
		cbAbout:   h.OnAbout,
		cbSupport: h.OnSupport,

		cbCatalog: h.OnCatalog,
		cbCat:     h.OnCategory,
		cbSub:     h.OnSubcategory,
		cbProduct: h.OnProduct,
		cbAdd:     h.OnAdd,

		cbCart:      h.OnCart,
		cbCartInc:   h.OnCartInc,
		cbCartDec:   h.OnCartDec,
		cbCartQty:   h.OnCartQty,
		cbCartRm:    h.OnCartRemove,
		cbCartClear: h.OnCartClear,

		cbCheckout:     h.OnCheckout,
		cbCheckoutZone: h.OnCheckoutZone,
		cbConfirm:      h.OnConfirm,
		cbEditAddress:  h.OnEditAddress,
		cbCancel:       h.OnCancelCheckout,

		cbOrders: h.OnOrders,
		cbOrder:  h.OnOrder,

		cbReviewPick:   h.OnReviewPick,
		cbReviewStar:   h.OnReviewStar,
		cbReviewSave:   h.OnReviewSave,
		cbReviewCancel: h.OnReviewCancel,
	}
	for k, fn := range table {
		table[k] = answered(fn)
	}
	return table
}

// answered makes sure every callback is answered once, so the client stops
// showing the loading spinner even when the handler did not toast.
func answered(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		err := next(c)
		if c.Get(respondedKey) == nil {
			_ = c.Respond()
		}
		return err
	}
}
