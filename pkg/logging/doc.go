// Package logging はzapベースの構造化ロガーとリクエストレコーダーを提供する。
//
// 出力はJSON1行1レコードで、timestamp・level・message・logger に加えて
// hostname と service を全レコードに付与する。プロセス全体のシングルトンは
// 持たず、生成したロガーを呼び出し側が明示的に受け渡す。
package logging
