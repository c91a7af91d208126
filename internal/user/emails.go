package user

import "fmt"

func otpEmailHTML(storeName, code string) string {
	return fmt.Sprintf(`
<div style="font-family:Inter,Arial,sans-serif;max-width:480px;margin:auto;border:1px solid #e0e0e0;border-radius:12px;overflow:hidden;">
  <div style="background:#0c831f;padding:24px;text-align:center;">
    <h1 style="color:#fff;margin:0;font-size:24px;">%s</h1>
    <p style="color:#c8e6c9;margin:4px 0 0;font-size:14px;">Your neighbourhood provision store</p>
  </div>
  <div style="padding:32px;">
    <h2 style="color:#1d1d1d;margin-top:0;">Email Verification</h2>
    <p style="color:#555;line-height:1.6;">Use the OTP below to verify your email. It expires in <strong>10 minutes</strong>.</p>
    <div style="background:#f3f3f3;border-radius:10px;padding:20px;text-align:center;margin:24px 0;">
      <span style="font-size:36px;font-weight:800;letter-spacing:10px;color:#0c831f;">%s</span>
    </div>
    <p style="color:#999;font-size:12px;">If you didn't request this, please ignore this email.</p>
  </div>
</div>`, storeName, code)
}
