package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/LakshanUd/sl-go-tour-backend/controllers"
	"github.com/LakshanUd/sl-go-tour-backend/middleware"
)

// RegisterCartRoutes sets up the cart, checkout and webhook routes.
func RegisterCartRoutes(r gin.IRouter, auth *middleware.Authenticator, cc *controllers.CartController) {
	// Public: authenticated by the Stripe-Signature header instead
	r.POST("/cart/webhook", cc.Webhook)

	cart := r.Group("/cart")
	cart.Use(auth.Middleware())

	cart.GET("", cc.GetCart)
	cart.DELETE("", cc.ClearCart)
	cart.POST("/items", cc.AddItem)
	cart.PATCH("/items/:itemId", cc.UpdateItem)
	cart.DELETE("/items/:itemId", cc.RemoveItem)
	cart.POST("/checkout", cc.Checkout)
}

// RegisterBookingRoutes sets up the booking routes. Every route requires a caller.
func RegisterBookingRoutes(r gin.IRouter, auth *middleware.Authenticator, bc *controllers.BookingController) {
	bookings := r.Group("/bookings")
	bookings.Use(auth.Middleware())

	bookings.POST("", bc.CreateBooking)
	bookings.GET("", bc.ListBookings)
	bookings.GET("/:id", bc.GetBooking)
	bookings.PUT("/:id", bc.UpdateBooking)
	bookings.DELETE("/:id", bc.DeleteBooking)
	bookings.POST("/:id/cancel", bc.CancelBooking)
	bookings.GET("/:id/receipt", bc.Receipt)
}
