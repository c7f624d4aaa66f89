// internal/domain/registration/messages.go
package registration

// User-facing copy. The backend and the lookup page both speak Korean.
const (
	MsgPrivacyConsent    = "개인정보 수집 및 이용에 동의해야 합니다. (필수)"
	MsgThirdPartyConsent = "개인정보 제3자 제공에 동의해야 합니다. (필수)"
	MsgTransferConsent   = "개인정보 국외 이전 동의가 필요합니다. (필수)"

	MsgSerialRequired   = "제품 번호를 입력하고 확인받으세요."
	MsgSerialUnverified = "차대번호 확인이 완료되지 않았습니다."
	MsgNameRequired     = "이름을 입력해주세요."
	MsgPhoneRequired    = "전화번호를 입력해주세요."
	MsgProductRequired  = "제품 모델을 선택해주세요."
	MsgStoreRequired    = "구입 매장을 목록에서 정확히 선택해주세요."
	MsgReceiptRequired  = "구매 영수증은 필수 항목입니다."
	MsgReceiptTooLarge  = "파일 용량이 3MB를 초과합니다."

	MsgVerifying         = "확인 중..."
	MsgVerifyCommFailure = "서버 통신 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgSerialRejected    = "등록할 수 없는 제품 번호입니다."

	MsgSubmitSuccess     = "✅ 제품 등록이 완료되었습니다!\n등록 내역 확인 페이지로 이동합니다."
	MsgSubmitReconciled  = "✅ (재접속 성공) 제품 등록이 완료되었습니다!\n등록 내역 확인 페이지로 이동합니다."
	MsgSubmitHighTraffic = "접속자가 많아 등록에 실패했습니다.\n잠시 후 다시 시도해주세요."
	MsgSubmitInFlight    = "등록 요청을 처리 중입니다. 잠시만 기다려주세요."

	// AlreadyRegisteredMarker is the substring the backend uses for duplicate serials.
	AlreadyRegisteredMarker = "이미 등록된 제품"
)

// MaxReceiptSize is the upper bound for the uploaded receipt image.
const MaxReceiptSize = 3 * 1024 * 1024
