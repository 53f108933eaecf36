package regex

// PhoneNumberPattern matches a line holding exactly one Hungarian phone number
// in international notation (+36 or 0036 prefix, area code, seven digit
// subscriber number), with arbitrary whitespace between the digits. It is the
// default filter pattern.
const PhoneNumberPattern = `^\s*(\+|0\s*0)\s*3\s*6\s*(1|[2-9]\s*[0-9])\s*([0-9]\s*){7}$`
