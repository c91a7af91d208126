package order

import (
	"fmt"
	"html"
	"strings"
)

// Notification bodies are best-effort transactional mail; unlike the bill
// they are not stored and carry no contractual weight.

func newOrderEmailSubject(o *Order) string {
	name := o.CustomerName
	if name == "" {
		name = "Customer"
	}
	return fmt.Sprintf("New Order — ₹%.2f from %s", o.Total, name)
}

func newOrderEmailHTML(storeName string, o *Order) string {
	var rows strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&rows, `<tr>
<td style="padding:8px 12px;border-bottom:1px solid #f0f0f0;">%s</td>
<td style="padding:8px 12px;border-bottom:1px solid #f0f0f0;text-align:center;">%d</td>
<td style="padding:8px 12px;border-bottom:1px solid #f0f0f0;text-align:right;">&#8377;%.2f</td>
</tr>`, html.EscapeString(it.Name), it.Quantity, it.Price*float64(it.Quantity))
	}

	name := o.CustomerName
	if name == "" {
		name = "Customer"
	}

	return fmt.Sprintf(`
<div style="font-family:Inter,Arial,sans-serif;max-width:560px;margin:auto;border:1px solid #e0e0e0;border-radius:12px;overflow:hidden;">
  <div style="background:#0c831f;padding:20px 24px;">
    <h1 style="color:#fff;margin:0;font-size:20px;">%s <span style="background:#f8c200;color:#1a1a1a;font-size:12px;font-weight:800;padding:3px 10px;border-radius:20px;">NEW ORDER</span></h1>
  </div>
  <div style="padding:24px;">
    <h2 style="color:#1d1d1d;margin-top:0;font-size:18px;">New Order Received: %s</h2>
    <table style="width:100%%;border-collapse:collapse;margin-bottom:20px;">
      %s
      <tr>
        <td style="padding:10px 12px;font-weight:700;">Total</td>
        <td></td>
        <td style="padding:10px 12px;text-align:right;font-weight:800;font-size:16px;color:#0c831f;">&#8377;%.2f</td>
      </tr>
    </table>
    <div style="background:#f8f8f8;border-radius:8px;padding:16px;">
      <p style="margin:0 0 6px;font-size:13px;font-weight:700;color:#555;">DELIVERY TO</p>
      <p style="margin:0;font-size:14px;color:#1d1d1d;line-height:1.6;">
        <strong>%s</strong><br/>%s<br/>%s
      </p>
    </div>
  </div>
</div>`,
		html.EscapeString(storeName),
		html.EscapeString(o.Code),
		rows.String(),
		o.Total,
		html.EscapeString(name),
		html.EscapeString(o.Address),
		html.EscapeString(o.Phone),
	)
}

func deliveredEmailSubject(storeName string, o *Order) string {
	return fmt.Sprintf("Your %s order %s has been delivered", storeName, o.Code)
}

func deliveredEmailHTML(storeName string, o *Order) string {
	name := o.CustomerName
	if name == "" {
		name = "Customer"
	}

	return fmt.Sprintf(`
<div style="font-family:Inter,Arial,sans-serif;max-width:480px;margin:auto;border:1px solid #e0e0e0;border-radius:12px;overflow:hidden;">
  <div style="background:#0c831f;padding:24px;text-align:center;">
    <h1 style="color:#fff;margin:0;font-size:24px;">%s</h1>
  </div>
  <div style="padding:32px;">
    <h2 style="color:#1d1d1d;margin-top:0;">Order Delivered</h2>
    <p style="color:#555;line-height:1.6;">Hi %s, your order <strong>%s</strong> (&#8377;%.2f) has been delivered. We hope everything arrived in perfect condition.</p>
    <p style="color:#999;font-size:12px;">Thank you for shopping with %s!</p>
  </div>
</div>`,
		html.EscapeString(storeName),
		html.EscapeString(name),
		html.EscapeString(o.Code),
		o.Total,
		html.EscapeString(storeName),
	)
}
