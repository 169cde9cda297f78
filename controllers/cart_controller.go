package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LakshanUd/sl-go-tour-backend/middleware"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/services"
)

// CartController handles the cart, checkout and payment webhook endpoints.
type CartController struct {
	carts    services.CartService
	checkout services.CheckoutService
	confirm  services.ConfirmationService
	logger   *zap.Logger
}

func NewCartController(
	carts services.CartService,
	checkout services.CheckoutService,
	confirm services.ConfirmationService,
	logger *zap.Logger,
) *CartController {
	return &CartController{carts: carts, checkout: checkout, confirm: confirm, logger: logger}
}

// GetCart handles GET /cart
func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.carts.Get(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem handles POST /cart/items
func (cc *CartController) AddItem(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	in, err := models.DecodeItemInput(body, false)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	cart, err := cc.carts.AddItem(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Added to cart", "cart": cart})
}

// UpdateItem handles PATCH /cart/items/:itemId
func (cc *CartController) UpdateItem(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	patch, err := models.DecodeItemPatch(body)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	cart, err := cc.carts.UpdateItem(c.Request.Context(), middleware.CallerFrom(c), c.Param("itemId"), patch)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item updated", "cart": cart})
}

// RemoveItem handles DELETE /cart/items/:itemId
func (cc *CartController) RemoveItem(c *gin.Context) {
	cart, err := cc.carts.RemoveItem(c.Request.Context(), middleware.CallerFrom(c), c.Param("itemId"))
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed", "cart": cart})
}

// ClearCart handles DELETE /cart
func (cc *CartController) ClearCart(c *gin.Context) {
	cart, err := cc.carts.Clear(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "cart": cart})
}

// Checkout handles POST /cart/checkout
func (cc *CartController) Checkout(c *gin.Context) {
	res, err := cc.checkout.Checkout(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Webhook handles POST /cart/webhook. The body must be read raw so the
// signature can be checked over the exact bytes.
func (cc *CartController) Webhook(c *gin.Context) {
	payload, err := readBody(c)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	if _, err := cc.confirm.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
