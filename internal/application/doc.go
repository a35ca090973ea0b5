// Package application はプロキシが振り分ける登録済みアプリケーションと
// そのレジストリを提供する。
//
// アプリケーションは起動時に一度だけ構築され、以後は変更されない。
// レジストリは登録順を保持し、ドメインをキーとした索引で振り分け先を引く。
package application
