// Package guardian は外部の認可サービスにBearerトークンを問い合わせて
// 許可・拒否を判定するGuardianを提供する。
//
// 判定はフェイルクローズで、トークンが無い場合、認可サービスが成功以外の
// ステータスを返した場合、認可サービスと通信できない場合はいずれも拒否する。
// 拒否レスポンスは原因によらず同一で、呼び出し元からは区別できない。
package guardian
