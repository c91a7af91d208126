package order

import (
	"fmt"
	"html/template"
	"strings"
)

// The bill is a legal record of what was charged: it is rendered exactly
// once at order creation, stored verbatim, and never regenerated. Given
// identical input the output is byte-for-byte identical.
var billTemplate = template.Must(template.New("bill").Parse(`<html>
<head>
<style>
  body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #f4f4f4; padding: 20px; }
  .bill-container { background: #fff; max-width: 700px; margin: auto; border: 1px solid #ddd; padding: 30px; color: #333; }
  .header { text-align: center; border-bottom: 3px solid #0c831f; padding-bottom: 15px; margin-bottom: 25px; }
  .shop-name { color: #0c831f; margin: 0; font-size: 28px; font-weight: 800; }
  .details-box { background: #f9f9f9; padding: 15px; border-radius: 8px; border: 1px solid #eee; margin-bottom: 15px; }
  .table { width: 100%; border-collapse: collapse; margin-bottom: 25px; }
  .table th { background: #f4f4f4; padding: 12px; text-align: left; border-bottom: 2px solid #ddd; text-transform: uppercase; font-size: 12px; }
  .table td { padding: 12px; border-bottom: 1px solid #eee; }
  .total-section { text-align: right; border-top: 2px solid #eee; padding-top: 15px; }
  .grand-total { font-size: 20px; color: #0c831f; margin: 5px 0; }
  .footer { margin-top: 40px; text-align: center; font-style: italic; color: #888; border-top: 1px solid #eee; padding-top: 15px; }
</style>
</head>
<body>
<div class="bill-container">
  <div class="header">
    <h1 class="shop-name">{{.StoreName}}</h1>
    <p style="margin: 5px 0; color: #666; font-size: 14px;">Your Trusted Grocery Partner</p>
  </div>
  <div class="details-box">
    <strong>Order ID:</strong> {{.Code}}<br>
    <strong>Date:</strong> {{.Date}}<br>
    {{if .DeliverySlot}}<strong>Delivery Slot:</strong> {{.DeliverySlot}}<br>{{end}}
    <strong>Payment:</strong> Pay on Delivery
  </div>
  <div class="details-box">
    <strong>{{.CustomerName}}</strong><br>
    {{.Address}}<br>
    Ph: {{.Phone}}
  </div>
  <table class="table">
    <thead>
      <tr>
        <th>Item Description</th>
        <th style="text-align:center;">Qty</th>
        <th style="text-align:right;">Price</th>
        <th style="text-align:right;">Amount</th>
      </tr>
    </thead>
    <tbody>
      {{range .Items}}<tr>
        <td>{{.Name}}</td>
        <td style="text-align:center;">{{.Quantity}}</td>
        <td style="text-align:right;">&#8377;{{.Price}}</td>
        <td style="text-align:right;">&#8377;{{.Amount}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  <div class="total-section">
    <p style="margin: 0; color: #777;">Subtotal: &#8377;{{.Subtotal}}</p>
    <p style="margin: 0; color: #777;">Service Fee: &#8377;{{.ServiceFee}}</p>
    <p style="margin: 0; color: #777;">Delivery Fee: &#8377;{{.DeliveryFee}}</p>
    <p style="margin: 10px 0 0; color: #777;">Amount Payable</p>
    <h2 class="grand-total">&#8377;{{.Total}}</h2>
    <p style="margin: 5px 0; font-size: 11px; color: #999;">Prices are inclusive of all taxes.</p>
  </div>
  <div class="footer">
    Thank you for shopping with {{.StoreName}}!<br>
    <small>This is a computer-generated invoice.</small>
  </div>
</div>
</body>
</html>
`))

type billItem struct {
	Name     string
	Quantity int
	Price    string
	Amount   string
}

type billData struct {
	StoreName    string
	Code         string
	Date         string
	DeliverySlot string
	CustomerName string
	Address      string
	Phone        string
	Items        []billItem
	Subtotal     string
	ServiceFee   string
	DeliveryFee  string
	Total        string
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RenderBill produces the immutable invoice document for an order snapshot.
func RenderBill(storeName string, o *Order) (string, error) {
	items := make([]billItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, billItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    money(it.Price),
			Amount:   money(it.Price * float64(it.Quantity)),
		})
	}

	data := billData{
		StoreName:    storeName,
		Code:         o.Code,
		Date:         o.CreatedAt.UTC().Format("2 January 2006"),
		DeliverySlot: o.DeliverySlot,
		CustomerName: o.CustomerName,
		Address:      o.Address,
		Phone:        o.Phone,
		Items:        items,
		Subtotal:     money(o.Subtotal),
		ServiceFee:   money(o.ServiceFee),
		DeliveryFee:  money(o.DeliveryFee),
		Total:        money(o.Total),
	}

	var buf strings.Builder
	if err := billTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render bill: %w", err)
	}
	return buf.String(), nil
}
