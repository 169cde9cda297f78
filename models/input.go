package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ItemInput is a validated line item request, independent of its variant.
type ItemInput struct {
	ServiceType ServiceType
	Ref         primitive.ObjectID

	Name  string
	Image string
	Code  string

	Currency  string
	UnitPrice float64
	Qty       int
	Pax       int
	Duration  string
	Notes     string

	StartDate *time.Time
	EndDate   *time.Time

	Discount float64
	Tax      float64
	Fees     float64
}

func (in ItemInput) refs() ResourceRefs { return NewRefs(in.ServiceType, in.Ref) }

// CartItem converts the input into a new cart row.
func (in ItemInput) CartItem() CartItem {
	return CartItem{
		ID:           primitive.NewObjectID(),
		ServiceType:  in.ServiceType,
		ResourceRefs: in.refs(),
		Name:         in.Name,
		Image:        in.Image,
		Code:         in.Code,
		Currency:     in.Currency,
		UnitPrice:    in.UnitPrice,
		Qty:          in.Qty,
		Pax:          in.Pax,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Duration:     in.Duration,
		Notes:        in.Notes,
	}
}

// BookingItem converts the input into a priced booking line.
func (in ItemInput) BookingItem() BookingItem {
	pax := in.Pax
	if pax == 0 {
		pax = 1
	}
	return BookingItem{
		ServiceType:  in.ServiceType,
		ResourceRefs: in.refs(),
		Name:         in.Name,
		Code:         in.Code,
		Image:        in.Image,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Duration:     in.Duration,
		Qty:          in.Qty,
		Pax:          pax,
		Notes:        in.Notes,
		Currency:     in.Currency,
		UnitPrice:    in.UnitPrice,
		Discount:     in.Discount,
		Tax:          in.Tax,
		Fees:         in.Fees,
	}.Priced()
}

// ItemCommon holds the fields shared by every item variant.
type ItemCommon struct {
	ServiceType ServiceType `json:"serviceType" validate:"required"`
	RefID       string      `json:"refId" validate:"required,mongodb"`
	Name        string      `json:"name" validate:"required"`
	Image       string      `json:"image"`
	Code        string      `json:"code"`
	Currency    string      `json:"currency" validate:"omitempty,len=3"`
	UnitPrice   *float64    `json:"unitPrice" validate:"required,min=0"`
	Qty         *int        `json:"qty" validate:"omitempty,min=1"`
	Notes       string      `json:"notes"`

	Discount *float64 `json:"discount" validate:"omitempty,min=0"`
	Tax      *float64 `json:"tax" validate:"omitempty,min=0"`
	Fees     *float64 `json:"fees" validate:"omitempty,min=0"`
}

type ItemWindow struct {
	StartDate *FlexTime `json:"startDate"`
	EndDate   *FlexTime `json:"endDate"`
}

type AccommodationInput struct {
	ItemCommon
	ItemWindow
	Pax *int `json:"pax" validate:"omitempty,min=0"`
}

type VehicleInput struct {
	ItemCommon
	ItemWindow
}

type TourPackageInput struct {
	ItemCommon
	ItemWindow
	Pax      *int   `json:"pax" validate:"omitempty,min=0"`
	Duration string `json:"duration"`
}

type MealInput struct {
	ItemCommon
	ItemWindow
}

type itemVariant interface {
	common() ItemCommon
	window() ItemWindow
	extras() (pax int, duration string)
}

func (v *AccommodationInput) common() ItemCommon { return v.ItemCommon }
func (v *AccommodationInput) window() ItemWindow { return v.ItemWindow }
func (v *AccommodationInput) extras() (int, string) { return deref(v.Pax), "" }

func (v *VehicleInput) common() ItemCommon { return v.ItemCommon }
func (v *VehicleInput) window() ItemWindow { return v.ItemWindow }
func (v *VehicleInput) extras() (int, string) { return 0, "" }

func (v *TourPackageInput) common() ItemCommon { return v.ItemCommon }
func (v *TourPackageInput) window() ItemWindow { return v.ItemWindow }
func (v *TourPackageInput) extras() (int, string) {
	return deref(v.Pax), strings.TrimSpace(v.Duration)
}

func (v *MealInput) common() ItemCommon { return v.ItemCommon }
func (v *MealInput) window() ItemWindow { return v.ItemWindow }
func (v *MealInput) extras() (int, string) { return 0, "" }

func variantFor(t ServiceType) itemVariant {
	switch t {
	case Accommodation:
		return &AccommodationInput{}
	case Vehicle:
		return &VehicleInput{}
	case TourPackage:
		return &TourPackageInput{}
	case Meal:
		return &MealInput{}
	}
	return nil
}

const requiredItemFields = "serviceType, refId, name, unitPrice required"

// DecodeItemInput decodes one line item. serviceType selects the payload
// shape and unknown fields are rejected. discount, tax and fees are only
// accepted when allowAdjustments is set.
func DecodeItemInput(data []byte, allowAdjustments bool) (ItemInput, error) {
	var envelope struct {
		ServiceType ServiceType `json:"serviceType"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ItemInput{}, apperrors.Validation("Invalid item payload")
	}
	if envelope.ServiceType == "" {
		return ItemInput{}, apperrors.Validation(requiredItemFields)
	}
	if !envelope.ServiceType.Valid() {
		return ItemInput{}, apperrors.Validationf("Unsupported serviceType %q", envelope.ServiceType)
	}
	v := variantFor(envelope.ServiceType)

	if err := decodeStrict(data, v); err != nil {
		return ItemInput{}, apperrors.Validationf("Invalid %s item: %v", envelope.ServiceType, err)
	}
	if err := validate.Struct(v); err != nil {
		return ItemInput{}, validationError(err)
	}

	c, w := v.common(), v.window()
	if !allowAdjustments && (c.Discount != nil || c.Tax != nil || c.Fees != nil) {
		return ItemInput{}, apperrors.Validation("discount, tax and fees are not accepted on cart items")
	}
	ref, err := primitive.ObjectIDFromHex(c.RefID)
	if err != nil {
		return ItemInput{}, apperrors.Validation("Invalid refId")
	}
	start, end := w.StartDate.Ptr(), w.EndDate.Ptr()
	if start != nil && end != nil && end.Before(*start) {
		return ItemInput{}, apperrors.Validation("endDate must not be before startDate")
	}

	qty := 1
	if c.Qty != nil {
		qty = *c.Qty
	}
	pax, duration := v.extras()
	return ItemInput{
		ServiceType: c.ServiceType,
		Ref:         ref,
		Name:        strings.TrimSpace(c.Name),
		Image:       c.Image,
		Code:        c.Code,
		Currency:    strings.ToUpper(c.Currency),
		UnitPrice:   *c.UnitPrice,
		Qty:         qty,
		Pax:         pax,
		Duration:    duration,
		Notes:       c.Notes,
		StartDate:   start,
		EndDate:     end,
		Discount:    deref(c.Discount),
		Tax:         deref(c.Tax),
		Fees:        deref(c.Fees),
	}, nil
}

// BookingDraft is the body of a direct booking creation.
type BookingDraft struct {
	Items    []ItemInput
	Channel  string
	Currency string
	Notes    string
	Guests   Guests
	Discount float64
	Tax      float64
	Fees     float64
}

type bookingBody struct {
	Items    []json.RawMessage `json:"items"`
	Channel  string            `json:"channel" validate:"omitempty,oneof=web phone partner"`
	Currency string            `json:"currency" validate:"omitempty,len=3"`
	Notes    string            `json:"notes"`
	Guests   *Guests           `json:"guests"`
	Discount *float64          `json:"discount" validate:"omitempty,min=0"`
	Tax      *float64          `json:"tax" validate:"omitempty,min=0"`
	Fees     *float64          `json:"fees" validate:"omitempty,min=0"`
}

// DecodeBookingDraft decodes and validates a booking creation body.
func DecodeBookingDraft(data []byte) (BookingDraft, error) {
	var body bookingBody
	if err := decodeStrict(data, &body); err != nil {
		return BookingDraft{}, apperrors.Validationf("Invalid booking payload: %v", err)
	}
	if err := validate.Struct(&body); err != nil {
		return BookingDraft{}, validationError(err)
	}
	items, err := decodeItems(body.Items)
	if err != nil {
		return BookingDraft{}, err
	}
	d := BookingDraft{
		Items:    items,
		Channel:  body.Channel,
		Currency: strings.ToUpper(body.Currency),
		Notes:    body.Notes,
		Guests:   Guests{Adults: 1},
		Discount: deref(body.Discount),
		Tax:      deref(body.Tax),
		Fees:     deref(body.Fees),
	}
	if body.Guests != nil {
		d.Guests = *body.Guests
	}
	return d, nil
}

// BookingPatch is the body of a booking update. Nil fields are left as is.
type BookingPatch struct {
	Items         []ItemInput
	ItemsSet      bool
	Status        *BookingStatus
	PaymentStatus *PaymentStatus
	Channel       *string
	Notes         *string
	Guests        *Guests
	Discount      *float64
	Tax           *float64
	Fees          *float64
}

type patchBody struct {
	Items         *[]json.RawMessage `json:"items"`
	Status        *BookingStatus     `json:"status"`
	PaymentStatus *PaymentStatus     `json:"paymentStatus"`
	Channel       *string            `json:"channel" validate:"omitempty,oneof=web phone partner"`
	Notes         *string            `json:"notes"`
	Guests        *Guests            `json:"guests"`
	Discount      *float64           `json:"discount" validate:"omitempty,min=0"`
	Tax           *float64           `json:"tax" validate:"omitempty,min=0"`
	Fees          *float64           `json:"fees" validate:"omitempty,min=0"`
}

// DecodeBookingPatch decodes and validates a booking update body.
func DecodeBookingPatch(data []byte) (BookingPatch, error) {
	var body patchBody
	if err := decodeStrict(data, &body); err != nil {
		return BookingPatch{}, apperrors.Validationf("Invalid booking payload: %v", err)
	}
	if err := validate.Struct(&body); err != nil {
		return BookingPatch{}, validationError(err)
	}
	if body.Status != nil && !body.Status.Valid() {
		return BookingPatch{}, apperrors.Validationf("Invalid status %q", *body.Status)
	}
	if body.PaymentStatus != nil && !body.PaymentStatus.Valid() {
		return BookingPatch{}, apperrors.Validationf("Invalid paymentStatus %q", *body.PaymentStatus)
	}
	p := BookingPatch{
		Status:        body.Status,
		PaymentStatus: body.PaymentStatus,
		Channel:       body.Channel,
		Notes:         body.Notes,
		Guests:        body.Guests,
		Discount:      body.Discount,
		Tax:           body.Tax,
		Fees:          body.Fees,
	}
	if body.Items != nil {
		items, err := decodeItems(*body.Items)
		if err != nil {
			return BookingPatch{}, err
		}
		p.Items, p.ItemsSet = items, true
	}
	return p, nil
}

// DecodeItemPatch decodes a cart item patch. Unknown fields are rejected.
func DecodeItemPatch(data []byte) (ItemPatch, error) {
	var patch ItemPatch
	if err := decodeStrict(data, &patch); err != nil {
		return ItemPatch{}, apperrors.Validationf("Invalid item patch: %v", err)
	}
	return patch, nil
}

func decodeItems(raw []json.RawMessage) ([]ItemInput, error) {
	if len(raw) == 0 {
		return nil, apperrors.Validation("Booking must contain at least one item")
	}
	items := make([]ItemInput, 0, len(raw))
	for i, r := range raw {
		in, err := DecodeItemInput(r, true)
		if err != nil {
			return nil, apperrors.Validationf("items[%d]: %s", i, apperrors.PublicMessage(err))
		}
		items = append(items, in)
	}
	return items, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation(err.Error())
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return apperrors.Validation(requiredItemFields)
	}
	return apperrors.Validationf("Invalid %s", strings.Join(invalid, ", "))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
