package orders

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
)

var exportHeader = []string{
	"Order Number",
	"Customer Name",
	"Customer Email",
	"Customer Phone",
	"Delivery Address",
	"Order Status",
	"Payment Status",
	"Payment Method",
	"Subtotal",
	"Delivery Charges",
	"Tax",
	"Discount",
	"Total",
	"Order Date",
	"Items",
}

// WriteCSV renders orders as a CSV document with a header row. Orders need
// their User, Address and Items.Product associations loaded.
func WriteCSV(rows []models.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, order := range rows {
		if err := w.Write(exportRecord(order)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRecord(order models.Order) []string {
	var name, email, phone, addr string
	if order.User != nil {
		name = order.User.Name
		phone = order.User.Phone
		if order.User.Email != nil {
			email = *order.User.Email
		}
	}
	if order.Address != nil {
		addr = fmt.Sprintf("%s, %s, %s - %s",
			order.Address.AddressLine1, order.Address.City, order.Address.State, order.Address.Pincode)
	}

	items := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		label := item.ProductID.String()
		if item.Product != nil {
			label = item.Product.Name
		}
		items = append(items, fmt.Sprintf("%s (%d)", label, item.Quantity))
	}

	return []string{
		order.OrderNumber,
		name,
		email,
		phone,
		addr,
		order.Status.String(),
		order.PaymentStatus.String(),
		order.PaymentMethod.String(),
		order.Subtotal.StringFixed(2),
		order.DeliveryCharges.StringFixed(2),
		order.Tax.StringFixed(2),
		order.Discount.StringFixed(2),
		order.Total.StringFixed(2),
		order.CreatedAt.UTC().Format(time.DateOnly),
		strings.Join(items, "; "),
	}
}
