package security

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrBreachCheckUnavailable は漏えいコーパスへの問い合わせ失敗を表す。
// ネットワークエラー、タイムアウト、不正なレスポンスのいずれでも返る。
// このエラーを「漏えいなし」として扱うことはセキュリティ上の退行であり、
// 呼び出し元は必ず独立した失敗として伝搬させること。
var ErrBreachCheckUnavailable = errors.New("breach corpus unavailable")

// hashPrefixLength はk-匿名性レンジ照会で送信するSHA-1ダイジェストの先頭文字数。
// 完全なダイジェストもパスワードも決して送信しない。
const hashPrefixLength = 5

// BreachClient はPwned Passwordsのk-匿名性レンジAPIのクライアント。
// パスワードのSHA-1ダイジェスト先頭5文字のみを送信し、
// 返却された候補リストをローカルでサフィックス照合する。
type BreachClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewBreachClient はBreachClientを生成する。
// httpClientにはタイムアウト付きの（通常はNewHardenedClientで生成した）クライアントを渡す。
// rpsは外部APIへの問い合わせレート上限。
func NewBreachClient(httpClient *http.Client, logger *slog.Logger, baseURL string, timeout time.Duration, rps float64) *BreachClient {
	return &BreachClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		timeout:    timeout,
	}
}

// CheckPassword はパスワードが既知の漏えいコーパスに含まれる回数を返す。
// 0は「見つからなかった」ことを意味する。
// 照会に失敗した場合はErrBreachCheckUnavailableを返す。0と混同してはならない。
func (c *BreachClient) CheckPassword(ctx context.Context, password string) (int, error) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:hashPrefixLength], digest[hashPrefixLength:]

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Error("breach check rate limiter aborted", slog.String("error", err.Error()))
		return 0, ErrBreachCheckUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build breach check request: %w", err)
	}
	req.Header.Set("User-Agent", "CipherSafe/1.0 credential vault")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("breach corpus request failed", slog.String("error", err.Error()))
		return 0, ErrBreachCheckUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("breach corpus returned error status", slog.Int("http_status", resp.StatusCode))
		return 0, ErrBreachCheckUnavailable
	}

	count, err := scanRangeResponse(resp, suffix)
	if err != nil {
		c.logger.Error("breach corpus returned malformed data", slog.String("error", err.Error()))
		return 0, ErrBreachCheckUnavailable
	}

	return count, nil
}

// scanRangeResponse はレンジAPIのレスポンス（改行区切りの "SUFFIX:COUNT"）を走査し、
// 一致するサフィックスの出現回数を合算して返す。
// 行フォーマットが崩れている場合はエラーを返す（呼び出し元でUnavailable扱い）。
func scanRangeResponse(resp *http.Response, wantSuffix string) (int, error) {
	total := 0

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		lineSuffix, countStr, ok := strings.Cut(line, ":")
		if !ok {
			return 0, fmt.Errorf("malformed range line: %q", line)
		}

		if !strings.EqualFold(lineSuffix, wantSuffix) {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count < 0 {
			return 0, fmt.Errorf("malformed breach count: %q", countStr)
		}
		total += count
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read range response: %w", err)
	}

	return total, nil
}
